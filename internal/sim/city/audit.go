package city

// AuditEntry records one accepted grid mutation for the audit trail.
type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Day    int    `json:"day"`
	Seq    uint64 `json:"seq"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Detail string `json:"detail,omitempty"`
}

func (c *City) audit(actor, action string, row, col int, detail string) {
	if c.sinks.Audit == nil {
		return
	}
	c.auditSeq++
	_ = c.sinks.Audit.WriteAudit(AuditEntry{
		Tick:   c.tick.Load(),
		Day:    c.day,
		Seq:    c.auditSeq,
		Actor:  actor,
		Action: action,
		Row:    row,
		Col:    col,
		Detail: detail,
	})
}
