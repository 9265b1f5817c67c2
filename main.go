// main is the entry point of the blameledger CLI.
package main

import (
	"github.com/huangsam/blameledger/cmd"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ledger"
)

func main() {
	defer ledger.CloseLedger()

	if err := cmd.Execute(); err != nil {
		ledger.CloseLedger()
		contract.LogFatal("Error starting CLI", err)
	}
}
