package signaling

// Disconnect cleans up after ch's connection has closed and returns the
// notifications that follow from it. It is safe to call more than once and
// after the room has already been removed.
func (r *Router) Disconnect(ch *Channel) []Delivery {
	if ch.gone {
		return nil
	}
	ch.gone = true
	m := ch.member

	switch m.Role {
	case RoleHost:
		viewers := r.dir.RemoveRoom(m.RoomID)
		if viewers == nil {
			return nil
		}
		r.log.Info("host left, room closed", "room", m.RoomID, "viewers", len(viewers))

		out := make([]Delivery, 0, len(viewers))
		for _, v := range viewers {
			out = append(out, Delivery{To: v, Msg: newHostLeft(), Close: true})
		}
		return out

	case RoleViewer:
		r.dir.RemoveViewer(m.RoomID, m.ViewerID)
		r.log.Info("viewer disconnected", "room", m.RoomID, "viewer", m.ViewerID)

		host, ok := r.dir.LookupHost(m.RoomID)
		if !ok || host == ch {
			return nil
		}
		return r.send(nil, host, newViewerLeft(m.ViewerID))

	default:
		r.log.Debug("unassigned channel disconnected", "channel", ch.ID())
		return nil
	}
}
