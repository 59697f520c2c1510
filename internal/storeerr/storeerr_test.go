package storeerr

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"not found", gorm.ErrRecordNotFound, KindNotFound},
		{"wrapped not found", fmt.Errorf("load row: %w", gorm.ErrRecordNotFound), KindNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, KindDuplicate},
		{"wrapped duplicate", fmt.Errorf("insert row: %w", gorm.ErrDuplicatedKey), KindDuplicate},
		{"other", errors.New("connection reset"), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(gorm.ErrRecordNotFound) {
		t.Fatal("IsNotFound should report true for ErrRecordNotFound")
	}
	if IsNotFound(gorm.ErrDuplicatedKey) {
		t.Fatal("IsNotFound should report false for ErrDuplicatedKey")
	}
	if !IsDuplicate(gorm.ErrDuplicatedKey) {
		t.Fatal("IsDuplicate should report true for ErrDuplicatedKey")
	}
	if IsDuplicate(errors.New("boom")) {
		t.Fatal("IsDuplicate should report false for unrelated errors")
	}
}
