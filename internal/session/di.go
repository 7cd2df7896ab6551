package session

import (
	"github.com/samber/do/v2"
	"github.com/voxlane/apptvoice/internal/backend"
	"github.com/voxlane/apptvoice/internal/config"
	"github.com/voxlane/apptvoice/internal/gateway"
	"github.com/voxlane/apptvoice/internal/notify"
	"github.com/voxlane/apptvoice/internal/repository"
	"github.com/voxlane/apptvoice/internal/room"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		bc := do.MustInvoke[backend.Client](i)
		rm := do.MustInvoke[room.Room](i)
		repo := do.MustInvoke[repository.Repository](i)
		broadcaster := do.MustInvoke[gateway.Broadcaster](i)
		notifier := do.MustInvoke[notify.Notifier](i)
		return NewManager(cfg, bc, rm, repo, broadcaster, notifier), nil
	})
	do.Provide(injector, func(i do.Injector) (gateway.CommandHandler, error) {
		return do.MustInvoke[*Manager](i), nil
	})
}
