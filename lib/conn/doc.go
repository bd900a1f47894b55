/*
Package conn provides Connection, a handle to an expiring key value store that is opened in the background.

A connection is created with a Dialer and opened with Connect. Connect returns immediately;
IsReady turns true once the dialer succeeded and the Done channel is closed when dialing
finished either way. Store methods called before that return ErrNotConnected.

	c := conn.New(conn.Local(nil))
	c.Connect()
	<-c.Done()
	if err := c.Err(); err != nil {
		...
	}
	defer c.Destroy()

Available dialers are Local (lstore), Bolt (bstore) and RPC (a shard of a remote server).
*/
package conn
