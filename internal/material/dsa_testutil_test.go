package material

import (
	"crypto/dsa"
	"testing"
)

// generateDSAForTest produces a small DSA key for signing tests.
func generateDSAForTest(t *testing.T) (*DSASecret, *DSAPublic) {
	t.Helper()
	var params dsa.Parameters
	if err := dsa.GenerateParameters(&params, testProvider.RandomReader(), dsa.L1024N160); err != nil {
		t.Fatalf("GenerateParameters() error = %v", err)
	}
	priv := &dsa.PrivateKey{}
	priv.Parameters = params
	if err := dsa.GenerateKey(priv, testProvider.RandomReader()); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	pub := &DSAPublic{P: params.P, Q: params.Q, G: params.G, Y: priv.Y}
	return &DSASecret{Pub: pub, X: priv.X}, pub
}
