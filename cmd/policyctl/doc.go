// Command policyctl provisions Prisma Cloud CSPM policies in bulk.
//
// Each row of a CSV input file names an RQL query and the metadata of one
// policy. For every row policyctl resolves the query to a search, saves the
// search under the row's saved search name and creates a policy whose rule
// references it.
//
// # Quick Start
//
//	export PRISMA_CLOUD_API_URL=https://api.prismacloud.io
//	export PRISMA_CLOUD_ACCESS_KEY=...
//	export PRISMA_CLOUD_SECRET_KEY=...
//
//	# Check the input without calling the API
//	policyctl policy apply --dry-run policies.csv
//
//	# Create the policies
//	policyctl policy apply policies.csv
//
//	# Re-apply whenever the file changes
//	policyctl policy watch policies.csv
//
// # Environment Variables
//
//   - PRISMA_CLOUD_API_URL: API base URL (required)
//   - PRISMA_CLOUD_ACCESS_KEY, PRISMA_CLOUD_SECRET_KEY: Key pair (required)
//   - PRISMA_CLOUD_POLICY_TYPE: config (default) or iam
//   - PRISMA_CLOUD_SEARCH_STRATEGY: separate (default) or combined
//   - PRISMA_CLOUD_CONFIG_PATH: Directory holding policyctl.yml
//
// See "policyctl configuration show" for every setting and its source.
package main
