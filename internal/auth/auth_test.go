package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("test-secret", Claims{
		UserID:     "u1",
		TenantID:   "t1",
		EmployeeID: "e1",
		Role:       RoleManager,
	}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.TenantID != "t1" || claims.EmployeeID != "e1" || claims.Role != RoleManager {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("test-secret", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("test-secret", token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("test-secret", "not.a.token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}

func TestRoleHasPermission(t *testing.T) {
	cases := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleEmployee, PermLeaveRead, true},
		{RoleEmployee, PermLeaveWrite, true},
		{RoleEmployee, PermLeaveApprove, false},
		{RoleEmployee, PermLeaveAdjust, false},
		{RoleEmployee, PermAuditRead, false},
		{RoleManager, PermLeaveApprove, true},
		{RoleManager, PermDirectoryRead, true},
		{RoleManager, PermLeaveAdjust, false},
		{RoleManager, PermDirectoryWrite, false},
		{RoleHR, PermLeaveAdjust, true},
		{RoleHR, PermLeaveAccrue, true},
		{RoleHR, PermAuditRead, true},
		{RoleAdmin, PermDirectoryWrite, true},
		{"intern", PermLeaveRead, false},
		{"", PermLeaveRead, false},
	}
	for _, tc := range cases {
		if got := RoleHasPermission(tc.role, tc.permission); got != tc.want {
			t.Errorf("RoleHasPermission(%q, %q) = %v, want %v", tc.role, tc.permission, got, tc.want)
		}
	}
}
