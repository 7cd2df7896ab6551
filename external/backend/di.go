package backend

import (
	"github.com/samber/do/v2"
	"github.com/voxlane/apptvoice/internal/backend"
	"github.com/voxlane/apptvoice/internal/config"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (backend.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPClient(c.BackendURL), nil
	})
}
