package gateway

import (
	"github.com/samber/do/v2"
	"github.com/voxlane/apptvoice/internal/config"
	gatewayport "github.com/voxlane/apptvoice/internal/gateway"
	"github.com/voxlane/apptvoice/internal/notify"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Hub, error) {
		return NewHub(), nil
	})
	do.Provide(injector, func(i do.Injector) (gatewayport.Broadcaster, error) {
		return do.MustInvoke[*Hub](i), nil
	})
	do.Provide(injector, func(i do.Injector) (notify.Notifier, error) {
		return NewToastNotifier(do.MustInvoke[*Hub](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		hub := do.MustInvoke[*Hub](i)
		commands := do.MustInvoke[gatewayport.CommandHandler](i)
		return NewServer(cfg, hub, commands), nil
	})
}
