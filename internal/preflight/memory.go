// Package preflight checks host resources before the generation model loads,
// so a doomed model load fails fast with a clear message instead of an OOM
// kill minutes later.
package preflight

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/vaporlogic/manualqa/internal/llm"
)

// CheckMemory verifies the host has enough available memory to load the
// generation model at the given quantization.
func CheckMemory(quant llm.Quantization) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Errorf("failed to read system memory: %w", err)
	}
	return checkAvailable(vm.Available, quant)
}

func checkAvailable(available uint64, quant llm.Quantization) error {
	required := quant.MinMemoryBytes()
	if available < required {
		return domain.NewDomainErrorWithCause(domain.ErrCodeResourceInsufficient,
			fmt.Sprintf("cannot load model with %s quantization: %.1f GiB available, %.1f GiB required",
				quant, gib(available), gib(required)),
			domain.ErrInsufficientMemory)
	}
	return nil
}

func gib(b uint64) float64 {
	return float64(b) / (1 << 30)
}
