// Command bookledger runs the ledger service and its maintenance tasks.
package main

import (
    "os"

    "github.com/tinoosan/bookledger/internal/cli"
)

func main() {
    if err := cli.Execute(); err != nil {
        os.Exit(1)
    }
}
