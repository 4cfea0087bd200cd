package interfaces

// NoticeKind categorises a user-facing notice.
type NoticeKind string

const (
	// NoticeWarning flags degraded behaviour that the user should know about.
	NoticeWarning NoticeKind = "warning"
	// NoticeError flags a failure that stopped enhancement entirely.
	NoticeError NoticeKind = "error"
)

// Presenter shows a dismissible notice to the user. Present replaces any
// active notice; Dismiss is idempotent and safe after auto-expiry.
type Presenter interface {
	Present(kind NoticeKind, message string)
	Dismiss()
}
