package chain

// Minimal ABIs of the contracts the backend talks to.
const (
	distributorABI = `[
		{"type":"function","name":"setMerkleRoot","stateMutability":"nonpayable","inputs":[{"name":"root","type":"bytes32"}],"outputs":[]},
		{"type":"function","name":"merkleRoot","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
	]`

	erc20ABI = `[
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`

	erc721ABI = `[
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`

	recorderABI = `[
		{"type":"function","name":"baseFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"pricePerSecond","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
	]`
)
