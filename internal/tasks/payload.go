package tasks

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	TypeLoginCode      = "login_code"
	TypeContactInquiry = "contact_inquiry"
)

// TaskPayload is the flat set of stream fields for a mail task. Unused fields
// are left empty.
type TaskPayload struct {
	Type string `mapstructure:"type"`
	To   string `mapstructure:"to"`

	Code          string `mapstructure:"code"`
	ExpiresInMins int    `mapstructure:"expires_in_mins"`

	Name    string `mapstructure:"name"`
	Email   string `mapstructure:"email"`
	Company string `mapstructure:"company"`
	Budget  string `mapstructure:"budget"`
	Message string `mapstructure:"message"`
}

// Values flattens the payload for XADD.
func (p TaskPayload) Values() map[string]any {
	return map[string]any{
		"type":            p.Type,
		"to":              p.To,
		"code":            p.Code,
		"expires_in_mins": p.ExpiresInMins,
		"name":            p.Name,
		"email":           p.Email,
		"company":         p.Company,
		"budget":          p.Budget,
		"message":         p.Message,
	}
}

func decodePayload(values map[string]any, out *TaskPayload) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
