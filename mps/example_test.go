package mps_test

import (
	"fmt"
	"log"

	"github.com/fumin/qburgers/mps"
)

func Example() {
	// Encode a step profile on a chain of length 4.
	chain, err := mps.NewChain([]float64{1, 1, 0, 0})
	if err != nil {
		log.Fatalf("%+v", err)
	}

	// Sweep a gate that moves a tenth of the weight between neighbours.
	updater, err := mps.NewUpdater(mps.NearIdentityGate(0.1), mps.NewUpdaterOptions().Split(mps.SplitSVD))
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if err := updater.Sweep(chain, 3); err != nil {
		log.Fatalf("%+v", err)
	}

	for i, u := range chain.Field() {
		fmt.Printf("u[%d] %.4f\n", i, u)
	}
	fmt.Printf("<chain|chain> %.4f\n", chain.Norm2())

	// Output:
	// u[0] 0.9000
	// u[1] 0.8100
	// u[2] 0.0000
	// u[3] 0.0000
	// <chain|chain> 0.5314
}
