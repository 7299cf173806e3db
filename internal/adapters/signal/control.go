package signal

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, map[string]any{
		"type": "pong",
	})
}
