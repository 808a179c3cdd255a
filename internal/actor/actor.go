// Package actor identifies who performed a mutation. Every write the engine
// issues carries an explicit actor so the persistence layer can attribute it.
package actor

import "errors"

type Type string

const (
	TypeUser   Type = "USER"
	TypeSystem Type = "SYSTEM"
)

var ErrMissingActor = errors.New("actor_required")

type Actor struct {
	Type Type
	Name string
}

// System is the identity attributed to scheduler-driven mutations.
func System() Actor {
	return Actor{Type: TypeSystem, Name: "scheduler"}
}

func User(name string) Actor {
	return Actor{Type: TypeUser, Name: name}
}

func (a Actor) Valid() bool {
	return (a.Type == TypeUser || a.Type == TypeSystem) && a.Name != ""
}

// Validate returns ErrMissingActor for a zero or malformed actor.
func (a Actor) Validate() error {
	if !a.Valid() {
		return ErrMissingActor
	}
	return nil
}
