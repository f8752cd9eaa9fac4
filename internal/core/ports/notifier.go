package ports

// ReloadNotifier tells connected browser clients to refresh.
// Broadcasting is fire-and-forget and idempotent; no clients is fine.
//
//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type ReloadNotifier interface {
	BroadcastReload()
}
