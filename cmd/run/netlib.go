//go:build netlib && cgo

package main

import (
	"log"

	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// Building with -tags netlib routes the dense propagator products of gonum through a system BLAS.
func init() {
	blas64.Use(netblas.Implementation{})
	log.Println("Using netlib to accelerate BLAS")
}
