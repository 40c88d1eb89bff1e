package cmdutils

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/advbs/portal/pkg/guard"
	"github.com/advbs/portal/pkg/session"
)

func TestCheckRole(t *testing.T) {
	admin := &session.User{ID: 1, Type: session.RoleAdmin, Name: "Ana"}

	tests := []struct {
		name    string
		snap    session.Snapshot
		role    session.Role
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "matching role",
			snap:    session.Snapshot{Status: session.StatusAuthenticated, User: admin},
			role:    session.RoleAdmin,
			wantErr: assert.NoError,
		},
		{
			name:    "any signed-in user",
			snap:    session.Snapshot{Status: session.StatusAuthenticated, User: admin},
			role:    session.RoleNone,
			wantErr: assert.NoError,
		},
		{
			name: "signed out points at login",
			snap: session.Snapshot{Status: session.StatusUnauthenticated},
			role: session.RoleAdmin,
			wantErr: func(t assert.TestingT, err error, _ ...any) bool {
				return assert.ErrorIs(t, err, guard.ErrSignedOut) &&
					assert.ErrorContains(t, err, "run advbs-portal login first")
			},
		},
		{
			name: "signed out with a reason",
			snap: session.Snapshot{Status: session.StatusUnauthenticated, Error: "Unable to reach the server: refused"},
			role: session.RoleClient,
			wantErr: func(t assert.TestingT, err error, _ ...any) bool {
				return assert.ErrorIs(t, err, guard.ErrSignedOut) &&
					assert.ErrorContains(t, err, "Unable to reach the server")
			},
		},
		{
			name: "wrong portal",
			snap: session.Snapshot{Status: session.StatusAuthenticated, User: admin},
			role: session.RoleClient,
			wantErr: func(t assert.TestingT, err error, _ ...any) bool {
				var wrong *guard.WrongRoleError
				return assert.ErrorAs(t, err, &wrong) && assert.Equal(t, session.RoleAdmin, wrong.Actual)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.wantErr(t, CheckRole(tt.snap, tt.role))
		})
	}
}

func TestFlagsBind(t *testing.T) {
	var flags Flags
	cmd := &cobra.Command{Use: "root"}
	flags.Bind(cmd)

	assert.NoError(t, cmd.PersistentFlags().Parse([]string{"--backend-url", "http://backend:8000", "-o", "yaml"}))
	assert.Equal(t, "http://backend:8000", flags.BackendURL)
	assert.Equal(t, "yaml", flags.Output)
}

func TestPortalCommandRejectsUnknownFormat(t *testing.T) {
	flags := &Flags{Output: "xml"}
	cmd := &cobra.Command{Use: "x"}

	run := PortalCommand("{}", flags, nil)
	assert.EqualError(t, run(cmd, nil), `unknown output format "xml", use table or yaml`)
}
