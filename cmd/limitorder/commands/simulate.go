package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"

	"github.com/tendermint/limitorder/internal/ledger"
	"github.com/tendermint/limitorder/internal/validation"
	"github.com/tendermint/limitorder/types"
)

// SimulateCmd checks candidate transactions against a coin set without a
// running node.
var SimulateCmd = &cobra.Command{
	Use:   "simulate [file]",
	Short: "Check transactions against a coin set and report every order decision",
	Long: `Simulate reads a JSON file holding a coin set and candidate transactions:

  {"chain_id": "...", "assets": [...], "coins": [...], "txs": [...]}

Every transaction is checked on its own against the coin set. For each one
the command prints whether it is valid and the decision of every order it
spends.`,
	Args: cobra.ExactArgs(1),
	RunE: simulate,
}

var simulateDisableAggregate bool

func init() {
	SimulateCmd.Flags().BoolVar(&simulateDisableAggregate, "disable_aggregate", false,
		"reject fills of orders locked by the aggregate payment program")
}

// Simulation is the input of the simulate command.
type Simulation struct {
	ChainID string            `json:"chain_id"`
	Assets  []types.Asset     `json:"assets"`
	Coins   types.Coins       `json:"coins"`
	Txs     []json.RawMessage `json:"txs"`
}

// SimulationResult is the outcome of one candidate transaction.
type SimulationResult struct {
	Index  int                      `json:"index"`
	Hash   types.Hash               `json:"hash"`
	Valid  bool                     `json:"valid"`
	Error  string                   `json:"error,omitempty"`
	Orders []validation.OrderResult `json:"orders,omitempty"`
}

func simulate(cmd *cobra.Command, args []string) error {
	bz, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var sim Simulation
	if err := json.Unmarshal(bz, &sim); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	if sim.ChainID == "" {
		sim.ChainID = config.ChainID
	}
	policy := validation.DefaultPolicy()
	policy.AllowAggregatePayment = config.Predicate.AllowAggregatePayment && !simulateDisableAggregate

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := RunSimulation(ctx, sim, policy)
	if err != nil {
		return err
	}
	return printJSON(cmd, results)
}

// RunSimulation checks every transaction of sim concurrently against its
// coin set. Results are in input order.
func RunSimulation(ctx context.Context, sim Simulation, policy validation.Policy) ([]SimulationResult, error) {
	store, err := ledger.NewStore(dbm.NewMemDB())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	c := store.NewCache()
	for _, asset := range sim.Assets {
		if err := c.SetAsset(asset); err != nil {
			return nil, err
		}
	}
	for _, coin := range sim.Coins {
		if err := c.AddCoin(coin); err != nil {
			return nil, err
		}
	}
	if err := c.Write(); err != nil {
		return nil, err
	}

	validator := validation.NewValidator(sim.ChainID, logger.With("module", "simulate"), validation.WithPolicy(policy))
	results := make([]SimulationResult, len(sim.Txs))
	g, ctx := errgroup.WithContext(ctx)
	for i := range sim.Txs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = simulateTx(validator, store, i, sim.Txs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func simulateTx(v *validation.Validator, store *ledger.Store, i int, raw json.RawMessage) SimulationResult {
	res := SimulationResult{Index: i}
	msg, err := types.DecodeMsg(raw)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	tx, ok := msg.(*types.Tx)
	if !ok {
		res.Error = fmt.Sprintf("can only simulate transfers, got %T", msg)
		return res
	}
	res.Hash = tx.Hash()
	res.Orders = v.Simulate(tx)
	if _, err := v.ValidateTx(store, tx); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	return res
}
