package log_test

import (
	"log/slog"
	"os"

	"github.com/modelhike/modelhike-sub001/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithPretty(false),
		log.WithTimeLayout("none"),
	)

	logger.Info("generated", slog.String("file", "User.java"))
	logger.Debug("not shown")
	// Output:
	// level=INFO msg=generated file=User.java
}
