package validate

import (
	"errors"
	"strings"
	"testing"
)

type createUser struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin teacher"`
	Code  string `json:"code" validate:"omitempty,edu_code"`
	Skip  string `json:"-" validate:"omitempty,max=1"`
}

func TestStruct(t *testing.T) {
	if err := Struct(createUser{Email: "a@b.co", Role: "admin", Code: "EDU-2025-1234-AB12"}); err != nil {
		t.Fatalf("valid struct: %v", err)
	}

	err := Struct(createUser{Role: "janitor", Code: "EDU-25"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("error = %v, want ErrInvalid", err)
	}
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T", err)
	}
	for _, field := range []string{"email", "role", "code"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing message for %q in %v", field, verr.Fields)
		}
	}
	if verr.Fields["email"] != "this field is required" {
		t.Errorf("email message = %q", verr.Fields["email"])
	}
	if !strings.HasPrefix(err.Error(), "validation failed: code:") {
		t.Errorf("Error() = %q, want fields in sorted order", err.Error())
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"07:30", 450, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"7:30", 0, true},
		{"07:60", 0, true},
		{"0730", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidClock) {
			t.Errorf("ParseClock(%q) err = %v, want ErrInvalidClock", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

type schoolHours struct {
	Arrival string `json:"arrival" validate:"hhmm"`
	Closing string `json:"closing" validate:"omitempty,hhmm"`
}

type schedule struct {
	Morning   schoolHours
	Afternoon schoolHours
}

func TestClockTag(t *testing.T) {
	if err := Struct(schoolHours{Arrival: "07:30"}); err != nil {
		t.Fatalf("valid clock: %v", err)
	}
	err := Struct(schoolHours{Arrival: "7:30", Closing: "24:00"})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	for _, field := range []string{"arrival", "closing"} {
		if verr.Fields[field] != ErrInvalidClock.Error() {
			t.Errorf("%s message = %q", field, verr.Fields[field])
		}
	}
}

func TestStructPathsKeepsSectionsApart(t *testing.T) {
	err := StructPaths(schedule{
		Morning:   schoolHours{Arrival: "07:30"},
		Afternoon: schoolHours{Arrival: "1pm"},
	})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if len(verr.Fields) != 1 {
		t.Fatalf("fields = %v, want one failure", verr.Fields)
	}
	if _, ok := verr.Fields["schedule.Afternoon.arrival"]; !ok {
		t.Errorf("fields = %v, want schedule.Afternoon.arrival", verr.Fields)
	}
}
