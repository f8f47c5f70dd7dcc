package config

import (
    "io"
    "os"
)

// logOutput is where Logger writes; tests swap it out.
var logOutput io.Writer = os.Stdout
