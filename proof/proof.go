// Package proof provides claim-proof commitments and an optional
// zero-knowledge path: a claimer can commit to proof text (a repo
// link, a hand-off note) and later demonstrate knowledge of that
// exact text without revealing it, via a Groth16 proof over BN254.
//
// The escrow itself only stores opaque proof reference strings; this
// package exists for clients that want the reference to be a
// commitment rather than plaintext.
package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"
)

// Commitment is the MiMC hash of a claim-proof secret, as a
// canonical BN254 scalar.
type Commitment [fr.Bytes]byte

func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// ParseCommitment decodes the hex form produced by String.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	b, err := hex.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("proof: invalid commitment %q: %w", s, err)
	}
	if len(b) != len(c) {
		return c, fmt.Errorf("proof: commitment must be %d bytes, got %d", len(c), len(b))
	}
	copy(c[:], b)
	return c, nil
}

// secretElement maps proof text onto a BN254 scalar.
func secretElement(text string) fr.Element {
	digest := sha256.Sum256([]byte(text))
	var e fr.Element
	e.SetBytes(digest[:])
	return e
}

// Commit computes the commitment for proof text: MiMC over the
// field-reduced SHA-256 digest of the text.
func Commit(text string) (Commitment, error) {
	secret := secretElement(text)
	sb := secret.Bytes()

	h := mimc.NewMiMC()
	if _, err := h.Write(sb[:]); err != nil {
		return Commitment{}, fmt.Errorf("proof: commit: %w", err)
	}
	var c Commitment
	copy(c[:], h.Sum(nil))
	return c, nil
}

// KnowledgeCircuit constrains Commitment == MiMC(Secret). Secret is
// the only private input.
type KnowledgeCircuit struct {
	Secret     frontend.Variable `gnark:",secret"`
	Commitment frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *KnowledgeCircuit) Define(api frontend.API) error {
	h, err := stdmimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.Secret)
	api.AssertIsEqual(h.Sum(), c.Commitment)
	return nil
}

// System holds the compiled knowledge circuit and its Groth16 keys.
type System struct {
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// Setup compiles the knowledge circuit and runs the Groth16 setup.
// In production the setup would come from a ceremony; for this
// ledger the prover and verifier are the same process family.
func Setup() (*System, error) {
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &KnowledgeCircuit{})
	if err != nil {
		return nil, fmt.Errorf("proof: circuit compilation failed: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("proof: setup failed: %w", err)
	}
	return &System{cs: cs, pk: pk, vk: vk}, nil
}

// Prove generates a proof of knowledge of text behind its
// commitment. Returns the proof and the commitment it binds to.
func (s *System) Prove(text string) (groth16.Proof, Commitment, error) {
	commitment, err := Commit(text)
	if err != nil {
		return nil, Commitment{}, err
	}

	secret := secretElement(text)
	assignment := &KnowledgeCircuit{
		Secret:     secret.BigInt(new(big.Int)),
		Commitment: new(big.Int).SetBytes(commitment[:]),
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, Commitment{}, fmt.Errorf("proof: witness: %w", err)
	}
	prf, err := groth16.Prove(s.cs, s.pk, witness)
	if err != nil {
		return nil, Commitment{}, fmt.Errorf("proof: prove: %w", err)
	}
	return prf, commitment, nil
}

// Verify checks a proof against a commitment.
func (s *System) Verify(prf groth16.Proof, commitment Commitment) error {
	assignment := &KnowledgeCircuit{
		Commitment: new(big.Int).SetBytes(commitment[:]),
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("proof: public witness: %w", err)
	}
	if err := groth16.Verify(prf, s.vk, witness); err != nil {
		return fmt.Errorf("proof: verify: %w", err)
	}
	return nil
}
