// Command node runs a single PoW chain participant: it opens its block and
// state stores, starts the gossip mesh, optionally mines, and optionally
// serves the read-only query API. Grounded on this module's
// cmd/synnergy/main.go cobra root-command shape, generalized from its mock
// testnet/token subcommands to the node's actual lifecycle.
package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"synnergy-network/core"
	"synnergy-network/p2p"
	"synnergy-network/pkg/config"
	"synnergy-network/queryserver"
)

func main() {
	root := &cobra.Command{Use: "ekhbc-node"}
	root.AddCommand(startCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func startCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start a node: gossip, optional mining, optional query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file overriding defaults")
	return cmd
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.New()
	if cfg.EnableLogging {
		if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(lvl)
		}
	} else {
		log.SetLevel(logrus.ErrorLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	blockKV, err := core.OpenLevelStore(cfg.Storage.DataDir+"/blocks", log)
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}
	defer blockKV.Close()
	stateKV, err := core.OpenLevelStore(cfg.Storage.DataDir+"/state", log)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer stateKV.Close()

	blocks := core.NewBlockStore(blockKV, log)
	state := core.NewStateStore(stateKV, log)
	pool := core.NewTxPool()

	head, err := blocks.Latest()
	if err != nil {
		return fmt.Errorf("read latest block: %w", err)
	}
	if head == nil {
		head = core.Genesis()
		if err := blocks.Put(head); err != nil {
			return fmt.Errorf("persist genesis: %w", err)
		}
		log.Info("initialized chain at genesis")
	}
	chain := &core.ChainInfo{LatestBlock: head, Difficulty: core.InitialDifficulty}

	var minerKey *core.KeyPair
	if cfg.PrivateKey != "" {
		minerKey, err = core.KeyFromPrivateHex(cfg.PrivateKey)
		if err != nil {
			return fmt.Errorf("parse PRIVATE_KEY: %w", err)
		}
	} else {
		minerKey, err = core.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generate key pair: %w", err)
		}
		log.WithField("address", minerKey.Address.Hex()).Warn("no PRIVATE_KEY configured; generated an ephemeral identity")
	}

	miner := core.NewMiner(chain, state, pool, minerKey, log)
	syncMgr := p2p.NewSyncManager()

	selfAddr := cfg.MyAddress
	if selfAddr == "" {
		selfAddr = fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}

	var node *p2p.Node
	handlers := &p2p.Handlers{
		Chain:              chain,
		Blocks:             blocks,
		State:              state,
		Pool:               pool,
		Sync:               syncMgr,
		Log:                log,
		EnableChainRequest: cfg.EnableChainRequest,
		OnNewHead: func(*core.Block) {
			if cfg.EnableMining {
				miner.Restart()
			}
		},
	}
	node = p2p.NewNode(selfAddr, log, handlers.Dispatch())
	handlers.Node = node

	miner.OnMined = func(b *core.Block) {
		if err := core.ApplyBlock(b, state, log, cfg.EnableLogging); err != nil {
			log.WithError(err).Error("failed to apply locally mined block")
			return
		}
		if err := blocks.Put(b); err != nil {
			log.WithError(err).Error("failed to persist locally mined block")
			return
		}
		chain.LatestBlock = b
		if next, err := core.NextDifficulty(b, chain, blocks); err == nil {
			chain.Difficulty = next
		}
		pool.Revalidate(state)
		node.Broadcast(&p2p.Envelope{Type: p2p.NewBlock, Data: p2p.NewBlockPayload{Block: b}})
		log.WithFields(logrus.Fields{"height": b.BlockNumber, "hash": b.Hash.Hex()}).Info("mined block")
	}

	// Dialing configured peers on startup is unconditional (spec §6); only
	// entering the SYNCING state is gated on ENABLE_CHAIN_REQUEST.
	node.DialSeeds(ctx, cfg.Peers)

	listenAddr := fmt.Sprintf(":%d", cfg.Port)
	go func() {
		if err := node.ListenAndServe(ctx, listenAddr); err != nil {
			log.WithError(err).Error("gossip server stopped")
		}
	}()

	if cfg.EnableMining {
		go miner.Start(ctx)
	}

	if cfg.QueryServer.Enabled {
		svc := &nodeQueryService{chain: chain, blocks: blocks, state: state, pool: pool, cfgMining: &cfg.EnableMining}
		qs := queryserver.NewServer(svc, log)
		addr := fmt.Sprintf(":%d", cfg.QueryServer.Port)
		httpSrv := &http.Server{Addr: addr, Handler: qs}
		go func() {
			log.WithField("addr", addr).Info("query server listening")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("query server stopped")
			}
		}()
		go func() {
			<-ctx.Done()
			_ = httpSrv.Close()
		}()
	}

	<-ctx.Done()
	log.Info("node stopped")
	return nil
}

// nodeQueryService adapts the running node's live state to
// queryserver.Service.
type nodeQueryService struct {
	chain     *core.ChainInfo
	blocks    *core.BlockStore
	state     *core.StateStore
	pool      *core.TxPool
	cfgMining *bool
}

func (s *nodeQueryService) Status() core.ChainStatus {
	return core.Snapshot(s.chain, s.pool, *s.cfgMining)
}

func (s *nodeQueryService) GetBlock(number uint64) (*core.Block, error) {
	return s.blocks.Get(number)
}

func (s *nodeQueryService) GetAccount(addr core.Address) (*core.Account, error) {
	return s.state.Get(addr)
}

func (s *nodeQueryService) SubmitTransaction(tx *core.Transaction) error {
	if tx.Gas == nil {
		tx.Gas = big.NewInt(core.MinTxFee)
	}
	return s.pool.Add(tx, s.state)
}
