package provisioning

import (
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"go.uber.org/fx"
)

var Module = fx.Module("provisioning.service",
	fx.Provide(
		NewProvisioner,
		func(p *Provisioner) task.FolderProvisioner { return p },
	),
)

var WorkerModule = fx.Module("provisioning.worker",
	fx.Invoke(RegisterHandlers),
)

var HTTPModule = fx.Module("provisioning.http",
	fx.Invoke(RegisterRoutes),
)
