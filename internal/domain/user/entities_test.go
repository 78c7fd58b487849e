package user

import (
	"testing"
	"time"
)

func TestProfileComplete(t *testing.T) {
	dob := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	full := func() User {
		return User{
			FullName: "Siti Rahma", Email: "siti@example.com", Phone: "+628123456789",
			DateOfBirth: &dob, Address: "Jl. Merdeka 1", PAN: "ABCDE1234F",
			IdentityDocURL: "s3://docs/id", AddressDocURL: "s3://docs/addr", IncomeDocURL: "s3://docs/income",
		}
	}

	u := full()
	if !u.ProfileComplete() {
		t.Fatal("full profile should be complete")
	}

	tests := []struct {
		name   string
		mutate func(u *User)
	}{
		{"no email", func(u *User) { u.Email = "" }},
		{"blank name", func(u *User) { u.FullName = "  " }},
		{"no dob", func(u *User) { u.DateOfBirth = nil }},
		{"no identity doc", func(u *User) { u.IdentityDocURL = "" }},
		{"no address doc", func(u *User) { u.AddressDocURL = "" }},
		{"no income doc", func(u *User) { u.IncomeDocURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := full()
			tt.mutate(&u)
			if u.ProfileComplete() {
				t.Fatalf("profile should be incomplete")
			}
		})
	}
}
