package dto

import (
	"strings"
	"testing"
)

func TestNicknameRule(t *testing.T) {
	tests := []struct {
		name     string
		nickname string
		valid    bool
	}{
		{"simple", "Fatou", true},
		{"arabic", "فاطمة", true},
		{"with digits and space", "Fatou 2", true},
		{"hyphenated", "Jean-Luc", true},
		{"apostrophe", "N'Diaye", true},
		{"too short", "F", false},
		{"too long", strings.Repeat("a", 31), false},
		{"emoji", "Fatou🦉", false},
		{"punctuation", "Fatou!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GetValidator().Var(tt.nickname, "nickname")
			if tt.valid && err != nil {
				t.Fatalf("%q should be valid: %v", tt.nickname, err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("%q should be rejected", tt.nickname)
			}
		})
	}
}

func TestSignUpRequestValidation(t *testing.T) {
	valid := SignUpRequest{
		Email: "fatou@tutoo.mr", Password: "secret1", Nickname: "Fatou",
		UserType: "student",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := SignUpRequest{Email: "not-an-email", Password: "x", Nickname: "F"}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) == 0 {
		t.Fatal("expected formatted field errors")
	}
	fields := map[string]bool{}
	for _, fieldErr := range formatted {
		if fieldErr.Message == "" {
			t.Fatalf("empty message for field %s", fieldErr.Field)
		}
		fields[fieldErr.Field] = true
	}
	for _, want := range []string{"Email", "Password", "Nickname"} {
		if !fields[want] {
			t.Fatalf("missing error for %s, got %v", want, formatted)
		}
	}
}

func TestProgressRequestBounds(t *testing.T) {
	valid := ProgressRequest{EventID: "evt-1", LessonID: "l1", Stars: 3}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tooManyStars := ProgressRequest{EventID: "evt-1", LessonID: "l1", Stars: 4}
	if err := tooManyStars.Validate(); err == nil {
		t.Fatal("stars above 3 must be rejected")
	}

	negativeXP := ProgressRequest{EventID: "evt-1", LessonID: "l1", XPEarned: -5}
	if err := negativeXP.Validate(); err == nil {
		t.Fatal("negative xp must be rejected")
	}
}
