package auth

// Mirror is the durable copy of a session's credential written alongside the
// in-memory entry. It is derived state, never the source of truth: on
// conflict with a freshly validated credential, the validated one wins.
type Mirror struct {
	SID           string     `json:"sid"`
	Credential    Credential `json:"credential"`
	Authenticated bool       `json:"authenticated"`
	Generation    uint64     `json:"generation"`
}

// NewMirror derives the mirror record for a credential at a generation.
func NewMirror(sid string, cred Credential, gen uint64) Mirror {
	cred = cred.Normalize()
	return Mirror{
		SID:           sid,
		Credential:    cred,
		Authenticated: cred.IsAuthenticated(),
		Generation:    gen,
	}
}
