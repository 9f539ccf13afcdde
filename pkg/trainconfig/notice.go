package trainconfig

// NoticeKind classifies the observational messages emitted while
// normalizing. Notices never change the result.
type NoticeKind string

const (
	NoticeDefault    NoticeKind = "default"
	NoticeDeprecated NoticeKind = "deprecated"
	NoticeSkipped    NoticeKind = "skipped"
)

// Notice reports a default substitution, a deprecated option or a skipped
// entry for one field.
type Notice struct {
	Kind    NoticeKind
	Field   string
	Message string
	Value   any
}

// NoticeHandler receives every notice in emission order.
type NoticeHandler func(Notice)

func (n *normalization) notice(kind NoticeKind, field, message string, value any) {
	if kind == NoticeDefault {
		n.log.Info(message, "field", field, "value", value)
	} else {
		n.log.Warn(message, "field", field)
	}
	if n.opts.onNotice != nil {
		n.opts.onNotice(Notice{Kind: kind, Field: field, Message: message, Value: value})
	}
}
