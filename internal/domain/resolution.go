package domain

// ResolutionKind tells how a playable URL was obtained from upstream.
type ResolutionKind string

const (
	// ResolutionRedirect means upstream answered 301/302 with a Location header.
	ResolutionRedirect ResolutionKind = "redirect"
	// ResolutionDirect means upstream answered 200 and the base URL is playable as is.
	ResolutionDirect ResolutionKind = "direct"
)

// Resolution is the outcome of probing a channel's base URL. Failures are
// reported as errors alongside a zero Resolution.
type Resolution struct {
	Kind     ResolutionKind
	Location string
}

func Redirect(location string) Resolution {
	return Resolution{Kind: ResolutionRedirect, Location: location}
}

func DirectServe(url string) Resolution {
	return Resolution{Kind: ResolutionDirect, Location: url}
}
