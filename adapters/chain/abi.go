package chain

const factoryABI = `[
	{"type":"function","name":"getAllTokens","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"createToken","stateMutability":"nonpayable","inputs":[
		{"name":"owner","type":"address"},
		{"name":"initialSupply","type":"uint256"},
		{"name":"name","type":"string"},
		{"name":"symbol","type":"string"},
		{"name":"iconId","type":"uint256"}
	],"outputs":[{"name":"","type":"address"}]}
]`

const tokenABI = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"iconId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`
