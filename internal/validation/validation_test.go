package validation

import "testing"

type sampleRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Minutes  int    `json:"time_minutes" validate:"gte=0"`
}

func TestCheckPassesValidStruct(t *testing.T) {
	t.Parallel()

	fields, err := Check(sampleRequest{Email: "cook@example.com", Password: "longenough", Minutes: 5})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if fields != nil {
		t.Fatalf("expected no field errors, got %v", fields)
	}
}

func TestCheckReportsFieldsByJSONName(t *testing.T) {
	t.Parallel()

	fields, err := Check(sampleRequest{Email: "not-an-email", Password: "short", Minutes: -1})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected three field errors, got %v", fields)
	}
	for _, key := range []string{"email", "password", "time_minutes"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected field error for %q, got %v", key, fields)
		}
	}
}

func TestCheckReportsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	fields, err := Check(sampleRequest{})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if fields["email"] == "" || fields["password"] == "" {
		t.Fatalf("expected required messages for email and password, got %v", fields)
	}
}

func TestCheckRejectsWhitespaceOnlyNotblankFields(t *testing.T) {
	t.Parallel()

	type named struct {
		Name string `json:"name" validate:"required,notblank"`
	}

	fields, err := Check(named{Name: "   "})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if fields["name"] == "" {
		t.Fatalf("expected blank message for name, got %v", fields)
	}

	fields, err = Check(named{Name: " pad thai "})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if fields != nil {
		t.Fatalf("expected padded value to pass, got %v", fields)
	}
}
