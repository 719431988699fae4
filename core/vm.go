package core

// vm.go — the stack-based, gas-metered contract interpreter (spec §4.4).
// Grounded on this module's vm_opcodes.go opcode set and gas_table.go's
// per-opcode cost table, reduced to the small deterministic instruction set
// the spec defines and rebuilt around *big.Int stack values instead of the
// teacher's fixed-width machine words, since spec §9 mandates BigInt
// arithmetic throughout.

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Opcode is one token of a contract's SCBody program.
type Opcode string

const (
	OpPush   Opcode = "PUSH"
	OpPop    Opcode = "POP"
	OpAdd    Opcode = "ADD"
	OpSub    Opcode = "SUB"
	OpMul    Opcode = "MUL"
	OpDiv    Opcode = "DIV"
	OpEq     Opcode = "EQ"
	OpLt     Opcode = "LT"
	OpGt     Opcode = "GT"
	OpJumpI  Opcode = "JUMPI"
	OpSLoad  Opcode = "SLOAD"
	OpSStore Opcode = "SSTORE"
	OpCaller Opcode = "CALLER"
	OpValue  Opcode = "VALUE"
	OpHalt   Opcode = "HALT"
)

// GasCost is the fixed per-opcode gas table (spec §4.4).
var GasCost = map[Opcode]int64{
	OpPush:   3,
	OpPop:    2,
	OpAdd:    5,
	OpSub:    5,
	OpMul:    8,
	OpDiv:    8,
	OpEq:     3,
	OpLt:     3,
	OpGt:     3,
	OpJumpI:  10,
	OpSLoad:  20,
	OpSStore: 100,
	OpCaller: 2,
	OpValue:  2,
	OpHalt:   0,
}

// ExecResult is what a contract invocation hands back to the state
// transition engine: the storage writes it made and the gas it actually
// spent. Everything else (the stack) is discarded once execution halts.
type ExecResult struct {
	Storage map[string]string
	GasUsed int64
}

var ErrOutOfGas = fmt.Errorf("core: contract ran out of gas")
var ErrStackUnderflow = fmt.Errorf("core: contract stack underflow")
var ErrDivByZero = fmt.Errorf("core: contract division by zero")
var ErrBadProgram = fmt.Errorf("core: malformed contract program")

// Execute runs contract.Body against the call described by tx, charging gas
// from tx.AdditionalData.ContractGas (falling back to tx.Gas when the call
// carries no contractGas). Execution is fully
// deterministic: no wall-clock, no randomness, no host I/O — only the
// caller's address, the call value, and the contract's own storage are
// observable.
func Execute(contract *Account, tx *Transaction, log *logrus.Logger, enableLogging bool) (*ExecResult, error) {
	budget := tx.Gas
	if tx.AdditionalData != nil && tx.AdditionalData.ContractGas != nil {
		budget = tx.AdditionalData.ContractGas
	}
	gasLimit := budget.Int64()

	program := strings.Fields(contract.Body)
	storage := make(map[string]string, len(contract.Storage))
	for k, v := range contract.Storage {
		storage[k] = v
	}
	if overlay := tx.AdditionalData; overlay != nil {
		for k, v := range overlay.StorageMap {
			storage[k] = v
		}
	}

	var stack []*big.Int
	push := func(v *big.Int) { stack = append(stack, v) }
	pop := func() (*big.Int, error) {
		if len(stack) == 0 {
			return nil, ErrStackUnderflow
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	var gasUsed int64
	spend := func(op Opcode) error {
		gasUsed += GasCost[op]
		if gasUsed > gasLimit {
			return ErrOutOfGas
		}
		return nil
	}

	pc := 0
	for pc < len(program) {
		op := Opcode(program[pc])
		if err := spend(op); err != nil {
			return nil, err
		}
		if enableLogging {
			log.WithFields(logrus.Fields{"pc": pc, "op": op}).Debug("contract step")
		}

		switch op {
		case OpPush:
			pc++
			if pc >= len(program) {
				return nil, ErrBadProgram
			}
			n, ok := new(big.Int).SetString(program[pc], 10)
			if !ok {
				return nil, ErrBadProgram
			}
			push(n)

		case OpPop:
			if _, err := pop(); err != nil {
				return nil, err
			}

		case OpAdd, OpSub, OpMul, OpDiv:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			push(applyArith(op, a, b))
			if op == OpDiv && b.Sign() == 0 {
				return nil, ErrDivByZero
			}

		case OpEq, OpLt, OpGt:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			push(applyCompare(op, a, b))

		case OpJumpI:
			target, err := pop()
			if err != nil {
				return nil, err
			}
			cond, err := pop()
			if err != nil {
				return nil, err
			}
			if cond.Sign() != 0 {
				dest := int(target.Int64())
				if dest < 0 || dest > len(program) {
					return nil, ErrBadProgram
				}
				pc = dest
				continue
			}

		case OpSLoad:
			key, err := pop()
			if err != nil {
				return nil, err
			}
			v, ok := storage[key.String()]
			if !ok {
				v = "0"
			}
			n, ok := new(big.Int).SetString(v, 10)
			if !ok {
				n = big.NewInt(0)
			}
			push(n)

		case OpSStore:
			val, err := pop()
			if err != nil {
				return nil, err
			}
			key, err := pop()
			if err != nil {
				return nil, err
			}
			storage[key.String()] = val.String()

		case OpCaller:
			addr := tx.Sender
			n := new(big.Int).SetBytes(addr[:])
			push(n)

		case OpValue:
			push(new(big.Int).Set(tx.Amount))

		case OpHalt:
			return &ExecResult{Storage: storage, GasUsed: gasUsed}, nil

		default:
			return nil, fmt.Errorf("%w: unknown opcode %q", ErrBadProgram, op)
		}

		pc++
	}

	return &ExecResult{Storage: storage, GasUsed: gasUsed}, nil
}

func applyArith(op Opcode, a, b *big.Int) *big.Int {
	r := new(big.Int)
	switch op {
	case OpAdd:
		return r.Add(a, b)
	case OpSub:
		return r.Sub(a, b)
	case OpMul:
		return r.Mul(a, b)
	case OpDiv:
		if b.Sign() == 0 {
			return big.NewInt(0)
		}
		return r.Div(a, b)
	}
	return r
}

func applyCompare(op Opcode, a, b *big.Int) *big.Int {
	cmp := a.Cmp(b)
	var result bool
	switch op {
	case OpEq:
		result = cmp == 0
	case OpLt:
		result = cmp < 0
	case OpGt:
		result = cmp > 0
	}
	if result {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// parseUintToken parses a plain decimal token as a uint64. Execute does not
// call it: PUSH operands, jump targets and storage keys are big integers.
func parseUintToken(tok string) (uint64, error) {
	return strconv.ParseUint(tok, 10, 64)
}
