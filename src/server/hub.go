package server

import (
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------
// Hub loop
// -----------------------------------------------------------------------------

// handleWebsockets owns the client registry and fans rebuilt tables out to
// every connection. Registration hands the newcomer the current state.
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case client, ok := <-s.register:
			if !ok {
				return
			}
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			initial := *s.latestState
			initial.Type = "INITIAL"
			s.stateMutex.Unlock()
			client.send <- &initial

		case client, ok := <-s.unregister:
			if !ok {
				return
			}
			s.stateMutex.Lock()
			if _, registered := s.clients[client]; registered {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case update, ok := <-s.broadcast:
			if !ok {
				return
			}
			s.stateMutex.Lock()
			for client := range s.clients {
				select {
				case client.send <- update:
				default:
					// Client too slow; prune it so the hub never blocks.
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast projects a rebuilt table onto the wire format, stores it as the
// latest state and queues it for fan-out.
func (s *APIServer) Broadcast(payload interface{}) {
	b, ok := payload.(*models.MTableBroadcast)
	if !ok {
		s.Logger.Warning("Broadcast expected *models.MTableBroadcast, got %T", payload)
		return
	}
	update := tableToUpdate(b.Table, b.Metrics, "UPDATE")

	s.stateMutex.Lock()
	s.latestTable = b.Table
	s.latestState = update
	s.stateMutex.Unlock()

	s.broadcast <- update
}

// -----------------------------------------------------------------------------

// UpdateLatest replaces the state served to new clients without waking the
// connected ones. Used for the initial table built at startup.
func (s *APIServer) UpdateLatest(payload interface{}) {
	b, ok := payload.(*models.MTableBroadcast)
	if !ok {
		s.Logger.Warning("UpdateLatest expected *models.MTableBroadcast, got %T", payload)
		return
	}
	update := tableToUpdate(b.Table, b.Metrics, "INITIAL")

	s.stateMutex.Lock()
	s.latestTable = b.Table
	s.latestState = update
	s.stateMutex.Unlock()
}
