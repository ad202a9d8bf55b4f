package signaling

// Conn is the outbound half of a network connection as the router sees it.
// Send must not block; it reports false when the record could not be queued.
type Conn interface {
	Send(msg *Message) bool
	Close()
	Open() bool
}

// Role is the part a channel plays in its room.
type Role uint8

const (
	RoleUnassigned Role = iota
	RoleHost
	RoleViewer
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleViewer:
		return "viewer"
	default:
		return "unassigned"
	}
}

// Membership is the negotiated state of a channel. ViewerID is only set for
// RoleViewer.
type Membership struct {
	Role     Role
	RoomID   string
	ViewerID string
}

// Channel wraps one accepted connection with its identity and membership.
// Membership is written once and only from the goroutine that runs the router.
type Channel struct {
	id     string
	conn   Conn
	member Membership
	gone   bool
}

// NewChannel registers a connection anonymously.
func NewChannel(id string, conn Conn) *Channel {
	return &Channel{id: id, conn: conn}
}

// ID returns the diagnostic identifier assigned at accept time.
func (c *Channel) ID() string {
	return c.id
}

// Membership returns the channel's current role and room.
func (c *Channel) Membership() Membership {
	return c.member
}

// assign records the channel's role. The first assignment wins.
func (c *Channel) assign(m Membership) bool {
	if c.member.Role != RoleUnassigned || m.Role == RoleUnassigned {
		return false
	}
	c.member = m
	return true
}

func (c *Channel) open() bool {
	return c.conn != nil && c.conn.Open()
}
