package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/quillpay/ledger/internal/domain"
)

func TestValidateBusinessName(t *testing.T) {
	if err := domain.ValidateBusinessName("Acme Corp"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := domain.ValidateBusinessName("  "); !errors.Is(err, domain.ErrInvalidBusinessName) {
		t.Errorf("expected ErrInvalidBusinessName for blank name, got %v", err)
	}

	long := strings.Repeat("a", domain.MaxBusinessNameLength+1)
	if err := domain.ValidateBusinessName(long); !errors.Is(err, domain.ErrInvalidBusinessName) {
		t.Errorf("expected ErrInvalidBusinessName for long name, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"ops@example.com", "a.b+c@sub.example.co", " Upper@Example.COM "}
	for _, email := range valid {
		if err := domain.ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", email, err)
		}
	}

	invalid := []string{"", "not-an-email", "missing@tld", "@example.com"}
	for _, email := range invalid {
		if err := domain.ValidateEmail(email); !errors.Is(err, domain.ErrInvalidEmail) {
			t.Errorf("ValidateEmail(%q) = %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestValidateWebhookURL(t *testing.T) {
	if err := domain.ValidateWebhookURL("https://hooks.example.com/x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := domain.ValidateWebhookURL("http://internal/x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := domain.ValidateWebhookURL("ftp://example.com"); !errors.Is(err, domain.ErrInvalidWebhookURL) {
		t.Errorf("expected ErrInvalidWebhookURL, got %v", err)
	}
}

func TestValidateIdempotencyKey(t *testing.T) {
	if err := domain.ValidateIdempotencyKey("order-2024-0001"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	long := strings.Repeat("k", domain.MaxIdempotencyKeyLen+1)
	if err := domain.ValidateIdempotencyKey(long); !errors.Is(err, domain.ErrInvalidIDFormat) {
		t.Errorf("expected ErrInvalidIDFormat, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{-1, -5, 50, 0},
		{10, 20, 10, 20},
		{5000, 0, 1000, 0},
	}

	for _, tt := range tests {
		limit, offset := domain.ValidatePagination(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
