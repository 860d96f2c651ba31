// Package session keeps the live game sessions of the server.
//
// Manager maps case-insensitive session ids to service.Session values. The
// map has its own lock; every engine call goes through Session.Do, so the
// actions of one session are applied one at a time and in arrival order
// while separate sessions run concurrently.
//
// Ids are caller-chosen ([A-Za-z0-9_-], up to 64 characters) or generated as
// four hex characters.
//
// Persistence is optional. FilePersistence writes one JSON document per
// session; RedisPersistence stores the same document under
// <prefix>:session:<id> with an optional TTL. With persistence enabled the
// manager writes through after every join and every applied action, and Get
// falls back to storage for sessions that are not in memory.
//
//	configs, _ := config.NewManager("configs")
//	store, _ := session.NewFilePersistence("sessions", configs)
//	manager := session.NewManagerWithPersistence(store, session.WithLogger(logger))
//	manager.LoadPersistedSessions()
//
//	sess, _ := manager.Create("", configs.GetDefault())
//	manager.Join(sess.ID, "p1", "Alice")
//	result, _ := manager.Apply(sess.ID, engine.Action{Type: engine.ActionRollDice, PlayerID: "p1"})
package session
