package order

// forward lists the statuses each state may move to in strict mode.
var forward = map[Status][]Status{
	StatusReceived: {StatusReady, StatusCancelled},
	StatusReady:    {StatusDelivered, StatusCancelled},
}

// Known reports whether s is one of the defined statuses.
func (s Status) Known() bool {
	switch s {
	case StatusReceived, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a forward move. Re-assigning
// the current status is allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return to.Known()
	}
	for _, next := range forward[from] {
		if next == to {
			return true
		}
	}
	return false
}
