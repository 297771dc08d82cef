package commands

import (
	"testing"
	"time"

	"github.com/kyberchat/kyberchat/pkg/models"
)

func TestGetConfigSource_ExplicitPath(t *testing.T) {
	got := getConfigSource("/etc/kyberchat/config.yaml")
	if got != "/etc/kyberchat/config.yaml" {
		t.Errorf("getConfigSource() = %q, want explicit path", got)
	}
}

func TestGetConfigSource_Defaults(t *testing.T) {
	// Point XDG at an empty directory so no default config file exists
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got := getConfigSource("")
	if got != "defaults" {
		t.Errorf("getConfigSource() = %q, want %q", got, "defaults")
	}
}

func TestUserListRendering(t *testing.T) {
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	ul := UserList{
		&models.User{ID: 1, Username: "alice", IsActive: true, CreatedAt: created},
		&models.User{ID: 2, Username: "bob", IsActive: false, CreatedAt: created},
	}

	headers := ul.Headers()
	if len(headers) != 4 {
		t.Fatalf("Headers() returned %d columns, want 4", len(headers))
	}

	rows := ul.Rows()
	if len(rows) != 2 {
		t.Fatalf("Rows() returned %d rows, want 2", len(rows))
	}
	if rows[0][0] != "1" || rows[0][1] != "alice" || rows[0][2] != "yes" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1][2] != "no" {
		t.Errorf("inactive user should render as no, got %v", rows[1])
	}
	if rows[0][3] != "2025-06-01 09:30" {
		t.Errorf("created column = %q, want formatted timestamp", rows[0][3])
	}
}
