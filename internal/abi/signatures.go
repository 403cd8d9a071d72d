package abi

// DefaultRegistry builds the registry with every signature the parser must
// recognize. The protocol's contract surface is fixed and versioned, so the
// table is embedded rather than fetched: decoding stays deterministic and
// works offline. A malformed entry panics, since the registry is
// load-bearing for every subsequent decode.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	entries := map[string][]Param{
		// ERC-20
		"Transfer": {Indexed("address"), Indexed("address"), Arg("uint256")},
		"Approval": {Indexed("address"), Indexed("address"), Arg("uint256")},
		"transfer": {Arg("address"), Arg("uint256")},
		"transferFrom": {
			Arg("address"), Arg("address"), Arg("uint256"),
		},
		"approve":           {Arg("address"), Arg("uint256")},
		"allowance":         {Arg("address"), Arg("address")},
		"mint":              {Arg("address"), Arg("uint256")},
		"increaseAllowance": {Arg("address"), Arg("uint256")},
		"decreaseAllowance": {Arg("address"), Arg("uint256")},

		// Vaults
		"Deposit":  {Indexed("address"), Arg("uint256")},
		"Withdraw": {Indexed("address"), Arg("uint256")},
		"Invest":   {Arg("uint256")},
		"Deposit#V2": {
			Indexed("address"), Indexed("uint256"), Arg("uint256"),
		},
		"Withdraw#V2": {
			Indexed("address"), Indexed("uint256"), Arg("uint256"),
		},
		"StrategyAnnounced": {Arg("address"), Arg("uint256")},
		"StrategyChanged":   {Arg("address"), Arg("address")},
		"SharePriceChangeLog": {
			Indexed("address"), Indexed("address"),
			Arg("uint256"), Arg("uint256"), Arg("uint256"),
		},
		"deposit":    {Arg("uint256")},
		"depositFor": {Arg("uint256"), Arg("address")},
		"depositAll": {Arg("uint256[]"), Arg("address[]")},
		"withdraw":   {Arg("uint256")},
		"withdrawAll": nil,
		"underlyingBalanceInVault":                 nil,
		"underlyingBalanceWithInvestment":          nil,
		"underlyingBalanceWithInvestmentForHolder": {Arg("address")},
		"getPricePerFullShare":                     nil,
		"doHardWork":                               nil,
		"doHardWork#V2":                            {Arg("address")},
		"rebalance":                                nil,
		"setStrategy":                              {Arg("address")},
		"setVaultFractionToInvest":                 {Arg("uint256"), Arg("uint256")},

		// Profit-share and reward pools
		"Staked": {Indexed("address"), Arg("uint256")},
		"Staked#V2": {
			Indexed("address"), Arg("uint256"), Arg("uint256"),
			Arg("uint256"), Arg("uint256"), Arg("uint256"),
		},
		"Withdrawn":   {Indexed("address"), Arg("uint256")},
		"RewardPaid":  {Indexed("address"), Arg("uint256")},
		"RewardAdded": {Arg("uint256")},
		"RewardDenied": {
			Indexed("address"), Arg("uint256"),
		},
		"Rewarded": {
			Indexed("address"), Indexed("address"), Arg("uint256"),
		},
		"Migrated": {
			Indexed("address"), Arg("uint256"), Arg("uint256"),
		},
		"ProfitLogInReward": {
			Arg("uint256"), Arg("uint256"), Arg("uint256"),
		},
		"stake":     {Arg("uint256")},
		"exit":      nil,
		"getReward": nil,
		"migrateInOneTx": {
			Arg("address"), Arg("address"), Arg("address"),
			Arg("address"), Arg("address"),
		},

		// Uniswap pair events
		"Swap": {
			Indexed("address"), Arg("uint256"), Arg("uint256"),
			Arg("uint256"), Arg("uint256"), Indexed("address"),
		},
		"Mint": {Indexed("address"), Arg("uint256"), Arg("uint256")},
		"Burn": {
			Indexed("address"), Arg("uint256"), Arg("uint256"),
			Indexed("address"),
		},
		"Sync": {Arg("uint112"), Arg("uint112")},

		// Uniswap router calls
		"addLiquidity": {
			Arg("address"), Arg("address"), Arg("uint256"), Arg("uint256"),
			Arg("uint256"), Arg("uint256"), Arg("address"), Arg("uint256"),
		},
		"addLiquidityETH": {
			Arg("address"), Arg("uint256"), Arg("uint256"),
			Arg("uint256"), Arg("address"), Arg("uint256"),
		},
		"removeLiquidity": {
			Arg("address"), Arg("address"), Arg("uint256"), Arg("uint256"),
			Arg("uint256"), Arg("address"), Arg("uint256"),
		},
		"removeLiquidityETH": {
			Arg("address"), Arg("uint256"), Arg("uint256"),
			Arg("uint256"), Arg("address"), Arg("uint256"),
		},
		"removeLiquidityWithPermit": {
			Arg("address"), Arg("address"), Arg("uint256"), Arg("uint256"),
			Arg("uint256"), Arg("address"), Arg("uint256"), Arg("bool"),
			Arg("uint8"), Arg("bytes32"), Arg("bytes32"),
		},
		"removeLiquidityETHWithPermit": {
			Arg("address"), Arg("uint256"), Arg("uint256"), Arg("uint256"),
			Arg("address"), Arg("uint256"), Arg("bool"), Arg("uint8"),
			Arg("bytes32"), Arg("bytes32"),
		},
		"swapExactTokensForTokens": {
			Arg("uint256"), Arg("uint256"), Arg("address[]"),
			Arg("address"), Arg("uint256"),
		},
		"swapTokensForExactTokens": {
			Arg("uint256"), Arg("uint256"), Arg("address[]"),
			Arg("address"), Arg("uint256"),
		},
		"swapExactETHForTokens": {
			Arg("uint256"), Arg("address[]"), Arg("address"), Arg("uint256"),
		},
		"swapTokensForExactETH": {
			Arg("uint256"), Arg("uint256"), Arg("address[]"),
			Arg("address"), Arg("uint256"),
		},
		"swapExactTokensForETH": {
			Arg("uint256"), Arg("uint256"), Arg("address[]"),
			Arg("address"), Arg("uint256"),
		},
		"swapETHForExactTokens": {
			Arg("uint256"), Arg("address[]"), Arg("address"), Arg("uint256"),
		},
		"sellToUniswap": {
			Arg("address[]"), Arg("uint256"), Arg("uint256"), Arg("bool"),
		},

		// Governance and deployer activity
		"OwnershipTransferred":  {Indexed("address"), Indexed("address")},
		"SmartContractRecorded": {Indexed("address"), Indexed("address")},
		"addVaultAndStrategy":   {Arg("address"), Arg("address")},
		"setStorage":            {Arg("address")},
		"setController":         {Arg("address")},
		"addMinter":             {Arg("address")},
		"renounceMinter":        nil,
		"addHardWorker":         {Arg("address")},
		"setFeeRewardForwarder": {Arg("address")},
		"setRewardDistribution": {Arg("address")},
		"notifyRewardAmount":    {Arg("uint256")},
		"notifyProfitSharing":   nil,
		"notifyPools": {
			Arg("uint256[]"), Arg("address[]"), Arg("uint256"),
		},
		"notifyPoolsIncludingProfitShare": {
			Arg("uint256[]"), Arg("address[]"), Arg("uint256"),
			Arg("uint256"), Arg("uint256"),
		},
		"poolNotifyFixedTarget": {Arg("address"), Arg("uint256")},
		"setConversionPath": {
			Arg("address"), Arg("address"), Arg("address[]"),
		},
		"setPath": {
			Arg("bytes32"), Arg("address"), Arg("address"), Arg("address[]"),
		},
		"addDex":  {Arg("bytes32"), Arg("address")},
		"execute": {Arg("address"), Arg("bytes")},
		"harvest": nil,
		"tend":    nil,
	}

	for name, params := range entries {
		if err := r.Register(name, params); err != nil {
			panic(err)
		}
	}
	return r
}
