package main

import (
	"os"

	"github.com/armadaproject/perftools/cmd/perftools/cmd"
	"github.com/armadaproject/perftools/internal/common/logging"
	"github.com/armadaproject/perftools/internal/common/perferrors"
)

func main() {
	err := cmd.RootCmd().Execute()
	if err != nil {
		logging.WithStacktrace(err).Error("perftools failed")
	}
	os.Exit(perferrors.ExitCodeFromError(err))
}
