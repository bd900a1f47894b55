/*
Package model provides typed access to an expiring key value store.

A Client owns a store connection (see package conn). Models are created per value type with a
schema; every model stores its values under a namespace that is derived from the shape of the
values and the model options, so two models with the same shape and options share their data:

	type session struct {
		UserID string `json:"userId"`
	}

	c := conn.New(conn.Local(nil))
	client := model.NewClient(c, nil)
	client.Connect()
	defer client.Destroy()

	sessions, err := model.New(client, schema.MustOf[session](), model.Options{TTL: time.Hour})
	...
	key, err := sessions.SetRandomKey(session{UserID: "u-1"})
	s, found, err := sessions.Get(key)

Values are stored in the positional encoding of package codec. Operations wait for the connection
to become ready, bounded by Config.Gate; a connection that does not get ready in time results in
ErrNotInitialized.

Models with ReadOnce delete a value after it was read. The delete runs in the background, errors
are logged and passed to Config.OnDetachedError. Client.Destroy waits for pending deletes.

Operation counters, payload sizes and detached errors are recorded with github.com/VictoriaMetrics/metrics
(skv_model_operations_total, skv_model_operation_errors_total, skv_model_payload_bytes, skv_model_detached_errors_total).
*/
package model
