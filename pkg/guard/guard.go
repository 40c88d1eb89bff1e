// Package guard decides, per navigation, whether a portal route may render,
// must redirect, or has to wait for the session to settle.
package guard

import (
	"errors"
	"fmt"

	"github.com/advbs/portal/pkg/session"
)

// LandingPath is the public landing route.
const LandingPath = "/"

type Action int

const (
	ActionRender Action = iota
	ActionRedirect
	ActionLoading
)

func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionRedirect:
		return "redirect"
	case ActionLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a guard. Location is set for redirects only.
type Decision struct {
	Action   Action
	Location string
}

func render() Decision { return Decision{Action: ActionRender} }

func loading() Decision { return Decision{Action: ActionLoading} }

func redirect(location string) Decision {
	return Decision{Action: ActionRedirect, Location: location}
}

// Decide guards a protected route. RoleNone means any authenticated user may
// enter. A user of the wrong role is sent to their own portal.
func Decide(snap session.Snapshot, required session.Role) Decision {
	if settling(snap) {
		return loading()
	}

	if !snap.IsAuthenticated() {
		return redirect(LandingPath)
	}

	if required != session.RoleNone && snap.User.Type != required {
		return redirect(snap.User.Type.RootPath())
	}

	return render()
}

// DecideRoot guards the landing route: authenticated users go to their
// portal, everybody else sees the landing page.
func DecideRoot(snap session.Snapshot) Decision {
	if snap.IsAuthenticated() {
		return redirect(snap.User.Type.RootPath())
	}

	if settling(snap) {
		return loading()
	}

	return render()
}

// settling covers the window before the saved token has been checked.
func settling(snap session.Snapshot) bool {
	return snap.Status == session.StatusVerifying || snap.Status == session.StatusUnknown
}

// ErrSignedOut is returned by Check when there is no authenticated session.
var ErrSignedOut = errors.New("not signed in")

// ErrSettling is returned by Check while the session is still being verified.
var ErrSettling = errors.New("session is still being verified")

// WrongRoleError names the portal the user belongs to.
type WrongRoleError struct {
	Required session.Role
	Actual   session.Role
}

func (e *WrongRoleError) Error() string {
	return fmt.Sprintf("this requires the %s role; signed in as %s (%s)", e.Required, e.Actual, e.Actual.RootPath())
}

// Check is Decide for callers that cannot redirect, such as the CLI.
func Check(snap session.Snapshot, required session.Role) error {
	d := Decide(snap, required)
	switch {
	case d.Action == ActionLoading:
		return ErrSettling
	case d.Action == ActionRedirect && d.Location == LandingPath:
		return ErrSignedOut
	case d.Action == ActionRedirect:
		return &WrongRoleError{Required: required, Actual: snap.Role()}
	default:
		return nil
	}
}
