package payments

import "net/url"

// Outcome is the payment result reported by the gateway, reduced to the codes
// the reconciliation protocol acts on. Anything else is OutcomeUnknown and is
// acknowledged without touching state.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeComplete
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Notification is one parsed gateway callback. Fields holds every form field
// except the signature, exactly as received, because the signature is
// computed over them verbatim.
type Notification struct {
	AppointmentID string
	Reference     string
	AmountGross   string
	Outcome       Outcome
	RawStatus     string
	Signature     string
	Fields        map[string]string
}

func ParseNotification(form url.Values) Notification {
	fields := make(map[string]string, len(form))
	for key := range form {
		if key == "signature" {
			continue
		}
		fields[key] = form.Get(key)
	}

	n := Notification{
		AppointmentID: fields["custom_str1"],
		Reference:     fields["pf_payment_id"],
		AmountGross:   fields["amount_gross"],
		RawStatus:     fields["payment_status"],
		Signature:     form.Get("signature"),
		Fields:        fields,
	}

	switch n.RawStatus {
	case "COMPLETE":
		n.Outcome = OutcomeComplete
	case "FAILED":
		n.Outcome = OutcomeFailed
	default:
		n.Outcome = OutcomeUnknown
	}
	return n
}
