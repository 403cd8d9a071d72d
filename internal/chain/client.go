package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/yagosupro/ethparser/internal/model"
)

const erc20BalanceABIJSON = `[
  {"inputs": [{"type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20BalanceABI     gethabi.ABI
	erc20BalanceABIOnce sync.Once
	erc20BalanceABIErr  error
)

func balanceABI() (gethabi.ABI, error) {
	erc20BalanceABIOnce.Do(func() {
		erc20BalanceABI, erc20BalanceABIErr = gethabi.JSON(strings.NewReader(erc20BalanceABIJSON))
	})
	return erc20BalanceABI, erc20BalanceABIErr
}

// Client wraps go-ethereum RPC and provides the lookups the pipeline
// needs: receipts, timestamps, gas price, token balances, and the log
// subscription. Safe for concurrent use.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[string]int64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[string]int64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// TransactionSender resolves the from-address of a transaction.
func (c *Client) TransactionSender(ctx context.Context, txHash string) (string, error) {
	var tx struct {
		From string `json:"from"`
	}
	if err := c.rpcClient.CallContext(ctx, &tx, "eth_getTransactionByHash", txHash); err != nil {
		return "", fmt.Errorf("get transaction %s: %w", txHash, err)
	}
	if tx.From == "" {
		return "", fmt.Errorf("transaction %s not found", txHash)
	}
	return strings.ToLower(tx.From), nil
}

// BlockTimestamp returns the block timestamp in seconds, preferring the
// block hash and caching by it. Hashless lookups go by number and are
// never cached.
func (c *Client) BlockTimestamp(ctx context.Context, blockHash string, blockNumber uint64) (int64, error) {
	if ts, ok := c.cachedTimestamp(blockHash); ok {
		return ts, nil
	}

	var header *types.Header
	var err error
	if blockHash != "" {
		header, err = c.ethClient.HeaderByHash(ctx, common.HexToHash(blockHash))
	} else {
		header, err = c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	}
	if err != nil {
		return 0, err
	}

	ts := int64(header.Time)
	c.cacheTimestamp(blockHash, ts)
	return ts, nil
}

func (c *Client) cachedTimestamp(blockHash string) (int64, bool) {
	if blockHash == "" {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.tsCache[blockHash]
	return ts, ok
}

func (c *Client) cacheTimestamp(blockHash string, ts int64) {
	if blockHash == "" {
		return
	}
	c.mu.Lock()
	c.tsCache[blockHash] = ts
	c.mu.Unlock()
}

// AverageGasPrice returns the node's suggested gas price in gwei.
func (c *Client) AverageGasPrice(ctx context.Context) (float64, error) {
	price, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return 0, err
	}
	gwei := new(big.Float).Quo(new(big.Float).SetInt(price), big.NewFloat(params.GWei))
	out, _ := gwei.Float64()
	return out, nil
}

// TokenBalance returns the ERC-20 balance of holder at the given block
// (0 means latest).
func (c *Client) TokenBalance(ctx context.Context, token, holder string, blockNumber uint64) (*big.Int, error) {
	erc20, err := balanceABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	input, err := erc20.Pack("balanceOf", common.HexToAddress(holder))
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	tokenAddr := common.HexToAddress(token)
	var atBlock *big.Int
	if blockNumber > 0 {
		atBlock = new(big.Int).SetUint64(blockNumber)
	}
	out, err := c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: input}, atBlock)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	values, err := erc20.Unpack("balanceOf", out)
	if err != nil || len(values) != 1 {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result: %T", values[0])
	}
	return balance, nil
}

// FilterLogs returns logs in the given range for addresses and topic0
// filters, normalized to LogRecord.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]model.LogRecord, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	logs, err := c.ethClient.FilterLogs(ctx, query)
	if err != nil {
		return nil, err
	}
	records := make([]model.LogRecord, 0, len(logs))
	for _, lg := range logs {
		records = append(records, ToLogRecord(lg))
	}
	return records, nil
}

// SubscribeLogs subscribes to new logs for the given addresses and feeds
// them to sink in chain order. Requires a websocket RPC endpoint.
func (c *Client) SubscribeLogs(ctx context.Context, addresses []common.Address, sink chan<- model.LogRecord) error {
	logs := make(chan types.Log, cap(sink))
	sub, err := c.ethClient.SubscribeFilterLogs(ctx, ethereum.FilterQuery{Addresses: addresses}, logs)
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Err():
				return
			case lg := <-logs:
				select {
				case sink <- ToLogRecord(lg):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return nil
}

// ToLogRecord normalizes a go-ethereum log.
func ToLogRecord(lg types.Log) model.LogRecord {
	topics := make([]string, 0, len(lg.Topics))
	for _, topic := range lg.Topics {
		topics = append(topics, topic.Hex())
	}
	return model.LogRecord{
		BlockNumber: lg.BlockNumber,
		BlockHash:   lg.BlockHash.Hex(),
		TxHash:      lg.TxHash.Hex(),
		TxIndex:     uint64(lg.TxIndex),
		LogIndex:    uint64(lg.Index),
		Address:     strings.ToLower(lg.Address.Hex()),
		Topics:      topics,
		Data:        hexutil.Encode(lg.Data),
		Removed:     lg.Removed,
	}
}
