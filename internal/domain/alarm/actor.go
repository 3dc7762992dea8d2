package alarm

// Actor identifies the host and user that posted an event.
type Actor struct {
	// Hostname is the machine the request came from.
	Hostname string
	// Username is the account that sent the request.
	Username string
}

// IsZero reports whether nothing is known about the actor.
func (a *Actor) IsZero() bool {
	return a == nil || (a.Hostname == "" && a.Username == "")
}
