package payments

import (
	"net/url"
	"testing"
)

func TestSignIsOrderIndependent(t *testing.T) {
	a := map[string]string{"merchant_id": "10000100", "amount": "75.00", "custom_str1": "appt1"}
	b := map[string]string{"custom_str1": "appt1", "amount": "75.00", "merchant_id": "10000100"}
	if Sign(a, "secret") != Sign(b, "secret") {
		t.Fatalf("expected identical signatures for same fields")
	}
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	fields := map[string]string{
		"payment_status": "COMPLETE",
		"pf_payment_id":  "pf-123",
		"amount_gross":   "75.00",
		"custom_str1":    "appt1",
	}
	sig := Sign(fields, "secret")
	if !Verify(fields, sig, "secret") {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	fields := map[string]string{
		"payment_status": "COMPLETE",
		"pf_payment_id":  "pf-123",
		"amount_gross":   "75.00",
		"custom_str1":    "appt1",
	}
	sig := Sign(fields, "secret")

	for key, forged := range map[string]string{
		"amount_gross":   "1.00",
		"payment_status": "FAILED",
		"custom_str1":    "other",
	} {
		tampered := make(map[string]string, len(fields))
		for k, v := range fields {
			tampered[k] = v
		}
		tampered[key] = forged
		if Verify(tampered, sig, "secret") {
			t.Fatalf("expected tampered %s to fail verification", key)
		}
	}

	if Verify(fields, sig, "other-secret") {
		t.Fatalf("expected wrong passphrase to fail verification")
	}
	if Verify(fields, "", "secret") {
		t.Fatalf("expected empty signature to fail verification")
	}
}

func TestParseNotificationExcludesSignature(t *testing.T) {
	form := url.Values{}
	form.Set("payment_status", "COMPLETE")
	form.Set("pf_payment_id", "pf-123")
	form.Set("amount_gross", "75.00")
	form.Set("custom_str1", "appt1")
	form.Set("signature", "abc")

	n := ParseNotification(form)
	if n.Signature != "abc" {
		t.Fatalf("expected signature abc, got %s", n.Signature)
	}
	if _, ok := n.Fields["signature"]; ok {
		t.Fatalf("expected signature excluded from signed fields")
	}
	if n.Outcome != OutcomeComplete {
		t.Fatalf("expected OutcomeComplete, got %s", n.Outcome)
	}
	if n.AppointmentID != "appt1" || n.Reference != "pf-123" || n.AmountGross != "75.00" {
		t.Fatalf("unexpected parsed fields: %+v", n)
	}
}

func TestParseNotificationUnknownStatus(t *testing.T) {
	form := url.Values{}
	form.Set("payment_status", "PENDING")
	n := ParseNotification(form)
	if n.Outcome != OutcomeUnknown {
		t.Fatalf("expected OutcomeUnknown, got %s", n.Outcome)
	}
}
