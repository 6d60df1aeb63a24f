package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
)

// Deployment is where a named contract lives on one network.
type Deployment struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// Resolver finds a contract deployment by name and network id.
type Resolver interface {
	Resolve(name string, networkID *big.Int) (Deployment, error)
}

// artifact is the subset of a Truffle build artifact we read.
type artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Networks     map[string]struct {
		Address string `json:"address"`
	} `json:"networks"`
}

// ArtifactResolver reads Truffle build artifacts named <Dir>/<name>.json.
// Parsed artifacts are cached so repeated binds after a chain switch do not
// hit the disk; a redeploy is picked up once the entry expires.
type ArtifactResolver struct {
	Dir   string
	cache *cache.Cache
}

func NewArtifactResolver(dir string, ttl time.Duration) *ArtifactResolver {
	return &ArtifactResolver{
		Dir:   dir,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *ArtifactResolver) Resolve(name string, networkID *big.Int) (Deployment, error) {
	if networkID == nil {
		return Deployment{}, fmt.Errorf("network id unknown")
	}
	a, parsed, err := r.load(name)
	if err != nil {
		return Deployment{}, err
	}

	net, ok := a.Networks[networkID.String()]
	if !ok || !common.IsHexAddress(net.Address) {
		return Deployment{}, fmt.Errorf("%s is not deployed on network %s", name, networkID)
	}
	return Deployment{
		Name:    name,
		Address: common.HexToAddress(net.Address),
		ABI:     parsed,
	}, nil
}

type cachedArtifact struct {
	artifact artifact
	abi      abi.ABI
}

func (r *ArtifactResolver) load(name string) (artifact, abi.ABI, error) {
	path := filepath.Join(r.Dir, name+".json")
	if v, ok := r.cache.Get(path); ok {
		c := v.(cachedArtifact)
		return c.artifact, c.abi, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return artifact{}, abi.ABI{}, fmt.Errorf("reading artifact: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return artifact{}, abi.ABI{}, fmt.Errorf("decoding artifact %s: %w", path, err)
	}
	if len(a.ABI) == 0 {
		return artifact{}, abi.ABI{}, fmt.Errorf("artifact %s has no abi", path)
	}
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return artifact{}, abi.ABI{}, fmt.Errorf("parsing abi in %s: %w", path, err)
	}

	r.cache.SetDefault(path, cachedArtifact{artifact: a, abi: parsed})
	return a, parsed, nil
}
