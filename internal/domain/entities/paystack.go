package entities

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// PaystackEventChargeSuccess is the only provider event that credits a balance
const PaystackEventChargeSuccess = "charge.success"

// PaystackEvent is the webhook envelope pushed by the payment provider
type PaystackEvent struct {
	Event string             `json:"event"`
	Data  PaystackChargeData `json:"data"`
}

// PaystackChargeData is the charge payload. Amount is in minor units.
type PaystackChargeData struct {
	Email     string           `json:"email"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	Reference string           `json:"reference"`
	Customer  PaystackCustomer `json:"customer"`
	Metadata  PaystackMetadata `json:"metadata"`
}

type PaystackCustomer struct {
	Email string `json:"email"`
}

// PaystackMetadata holds the custom fields attached at checkout.
type PaystackMetadata struct {
	CustomFields []PaystackCustomField `json:"custom_fields"`
}

type PaystackCustomField struct {
	DisplayName  string          `json:"display_name"`
	VariableName string          `json:"variable_name"`
	Value        json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts an object, null, an empty string, or a JSON object
// encoded as a string; the provider sends all of these.
func (m *PaystackMetadata) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = PaystackMetadata{}
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if strings.TrimSpace(encoded) == "" {
			*m = PaystackMetadata{}
			return nil
		}
		data = []byte(encoded)
	}

	type plain PaystackMetadata
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = PaystackMetadata(out)
	return nil
}

// StringValue renders the field value as text. Strings are unquoted;
// numbers and other literals are returned verbatim.
func (f PaystackCustomField) StringValue() string {
	raw := bytes.TrimSpace(f.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

// CustomField returns the value of the first custom field named name.
func (m PaystackMetadata) CustomField(name string) (string, bool) {
	for _, f := range m.CustomFields {
		if f.VariableName == name {
			v := f.StringValue()
			return v, v != ""
		}
	}
	return "", false
}

// MajorAmount converts the minor-unit amount (e.g. kobo) to major units.
func (d PaystackChargeData) MajorAmount() decimal.Decimal {
	return decimal.New(d.Amount, -2)
}

// WebhookResult reports what the webhook handler did with an event
type WebhookResult struct {
	Event     string `json:"event"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate"`
}
