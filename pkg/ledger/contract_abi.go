package ledger

const traceabilityABI = `[
  {"type":"function","name":"createBatch","stateMutability":"nonpayable",
   "inputs":[{"name":"batchId","type":"string"},{"name":"growerId","type":"string"},{"name":"productName","type":"string"},{"name":"harvestDate","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"addProduct","stateMutability":"nonpayable",
   "inputs":[{"name":"productId","type":"string"},{"name":"name","type":"string"},{"name":"farm","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"addTrace","stateMutability":"nonpayable",
   "inputs":[{"name":"productId","type":"string"},{"name":"action","type":"string"},{"name":"location","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"getProduct","stateMutability":"view",
   "inputs":[{"name":"productId","type":"string"}],
   "outputs":[{"name":"id","type":"string"},{"name":"name","type":"string"},{"name":"farm","type":"string"},{"name":"createdAt","type":"uint256"},{"name":"traceCount","type":"uint256"}]},
  {"type":"function","name":"getTrace","stateMutability":"view",
   "inputs":[{"name":"productId","type":"string"},{"name":"index","type":"uint256"}],
   "outputs":[{"name":"action","type":"string"},{"name":"location","type":"string"},{"name":"timestamp","type":"uint256"},{"name":"actor","type":"address"}]}
]`
