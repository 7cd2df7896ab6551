package room

import (
	"github.com/samber/do/v2"
	roompkg "github.com/voxlane/apptvoice/internal/room"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (roompkg.Room, error) {
		return NewLiveKitRoom(), nil
	})
}
