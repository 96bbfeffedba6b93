// Command cidstore is the operator tool for the FilecoinCIDStore registry:
// register content, purchase access and retrieve data CIDs directly
// against the deployed contract.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"base0-backend/internal/registry"
)

const defaultRPCURL = "https://api.calibration.node.glif.io/rpc/v1"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "store-cid":
		err = runStoreCID(os.Args[2:])
	case "purchase-access":
		err = runPurchaseAccess(os.Args[2:])
	case "get-cid":
		err = runGetCID(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: cidstore <command> [flags]

Commands:
  store-cid        Store content with Filecoin piece CID and data CID
  purchase-access  Purchase access to content stored on Filecoin
  get-cid          Retrieve the data CID after purchasing access

Environment:
  DEPLOYER_PRIVATE_KEY  signing key for transactions (required)
  FILECOIN_RPC_URL      RPC endpoint (default: calibration)`)
}

func connect(ctx context.Context, contractAddr string) (*registry.Contract, error) {
	if contractAddr == "" {
		return nil, fmt.Errorf("--contract is required")
	}

	key := os.Getenv("DEPLOYER_PRIVATE_KEY")
	if key == "" {
		return nil, fmt.Errorf("DEPLOYER_PRIVATE_KEY is not set")
	}

	rpcURL := os.Getenv("FILECOIN_RPC_URL")
	if rpcURL == "" {
		rpcURL = defaultRPCURL
	}

	contract, err := registry.NewContractWithKey(ctx, rpcURL, contractAddr, key)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Contract: %s\n", contractAddr)
	fmt.Printf("Using wallet: %s\n", contract.Signer())
	return contract, nil
}

func runStoreCID(args []string) error {
	fs := flag.NewFlagSet("store-cid", flag.ExitOnError)
	contractAddr := fs.String("contract", "", "address of the FilecoinCIDStore contract")
	pieceCid := fs.String("piece-cid", "", "Filecoin piece CID (commP)")
	dataCid := fs.String("data-cid", "", "original data CID")
	price := fs.String("price", "", "price in FIL for accessing this content")
	title := fs.String("title", "", "content title")
	description := fs.String("description", "", "content description")
	pieceSize := fs.Int64("piece-size", 0, "piece size in bytes")
	fs.Parse(args)

	if *pieceCid == "" || *dataCid == "" || *price == "" || *title == "" || *pieceSize <= 0 {
		return fmt.Errorf("--piece-cid, --data-cid, --price, --title and --piece-size are required")
	}

	priceWei, err := registry.ParseFIL(*price)
	if err != nil {
		return fmt.Errorf("invalid --price: %w", err)
	}

	ctx := context.Background()
	contract, err := connect(ctx, *contractAddr)
	if err != nil {
		return err
	}

	fmt.Printf("Piece CID: %s\n", *pieceCid)
	fmt.Printf("Data CID: %s\n", *dataCid)
	fmt.Printf("Price: %s FIL\n", *price)
	fmt.Printf("Title: %s\n", *title)

	contentID, txHash, err := contract.StoreContent(ctx, *pieceCid, *dataCid, priceWei, *title, *description, *pieceSize)
	if err != nil {
		return fmt.Errorf("failed to store content: %w", err)
	}

	fmt.Println("Content stored successfully on Filecoin FVM!")
	fmt.Printf("Transaction hash: %s\n", txHash)
	fmt.Printf("Content ID: %d\n", contentID)
	return nil
}

func runPurchaseAccess(args []string) error {
	fs := flag.NewFlagSet("purchase-access", flag.ExitOnError)
	contractAddr := fs.String("contract", "", "address of the FilecoinCIDStore contract")
	contentID := fs.Uint64("content-id", 0, "content ID to purchase access to")
	fs.Parse(args)

	ctx := context.Background()
	contract, err := connect(ctx, *contractAddr)
	if err != nil {
		return err
	}

	info, err := contract.GetContentInfo(ctx, *contentID, contract.Signer())
	if err != nil {
		return fmt.Errorf("failed to get content info: %w", err)
	}

	fmt.Printf("Content: %q\n", info.Title)
	fmt.Printf("Description: %q\n", info.Description)
	fmt.Printf("Price: %s FIL\n", info.Price)
	fmt.Printf("Owner: %s\n", info.Owner)
	fmt.Printf("Piece size: %d bytes\n", info.PieceSize)
	if info.DealID > 0 {
		fmt.Printf("Deal ID: %d\n", info.DealID)
	} else {
		fmt.Println("Deal ID: no deal yet")
	}

	if info.UserHasAccess {
		fmt.Println("You already have access to this content!")
		return nil
	}
	if strings.EqualFold(info.Owner, contract.Signer()) {
		fmt.Println("You own this content!")
		return nil
	}
	if !info.IsActive {
		return fmt.Errorf("content %d is not active for purchase", *contentID)
	}

	if activated, err := contract.CheckDealActivation(ctx, *contentID); err == nil {
		if activated {
			fmt.Println("Filecoin deal status: active")
		} else {
			fmt.Println("Filecoin deal status: pending/none")
		}
	} else {
		fmt.Println("Deal status check failed (content may not have a deal yet)")
	}

	priceWei, err := registry.ParseFIL(info.Price)
	if err != nil {
		return fmt.Errorf("invalid on-chain price: %w", err)
	}

	feePct, err := contract.PlatformFeePercentage(ctx)
	if err != nil {
		return fmt.Errorf("failed to read platform fee: %w", err)
	}
	platformFee := new(big.Int).Div(new(big.Int).Mul(priceWei, feePct), big.NewInt(100))
	totalCost := new(big.Int).Add(priceWei, platformFee)

	fmt.Printf("Platform fee: %s FIL (%s%%)\n", registry.FormatFIL(platformFee), feePct)
	fmt.Printf("Total cost: %s FIL\n", registry.FormatFIL(totalCost))

	// The contract deducts the platform fee from the sent value itself.
	txHash, err := contract.PurchaseAccess(ctx, *contentID)
	if err != nil {
		return fmt.Errorf("failed to purchase access: %w", err)
	}

	fmt.Println("Access purchased successfully on Filecoin FVM!")
	fmt.Printf("Transaction hash: %s\n", txHash)
	fmt.Println("Access valid for 365 days from now")
	return nil
}

func runGetCID(args []string) error {
	fs := flag.NewFlagSet("get-cid", flag.ExitOnError)
	contractAddr := fs.String("contract", "", "address of the FilecoinCIDStore contract")
	contentID := fs.Uint64("content-id", 0, "content ID to retrieve the CID for")
	fs.Parse(args)

	ctx := context.Background()
	contract, err := connect(ctx, *contractAddr)
	if err != nil {
		return err
	}

	hasAccess, err := contract.HasAccess(ctx, *contentID, contract.Signer())
	if err != nil {
		return fmt.Errorf("failed to check access: %w", err)
	}
	if !hasAccess {
		fmt.Println("Access denied. You need to purchase access first.")
		fmt.Println("Use: cidstore purchase-access --contract <address> --content-id <id>")
		return fmt.Errorf("no access to content %d", *contentID)
	}

	info, err := contract.GetContentInfo(ctx, *contentID, contract.Signer())
	if err != nil {
		return fmt.Errorf("failed to get content info: %w", err)
	}

	fmt.Printf("Content: %q\n", info.Title)
	fmt.Printf("Owner: %s\n", info.Owner)

	if info.DealID > 0 {
		if activated, err := contract.CheckDealActivation(ctx, *contentID); err == nil {
			if activated {
				fmt.Println("Filecoin deal status: active")
			} else {
				fmt.Println("Filecoin deal status: pending")
			}
		}
		fmt.Printf("Deal ID: %d\n", info.DealID)
	} else {
		fmt.Println("No Filecoin deal created yet")
	}

	dataCid, err := contract.GetCID(ctx, *contentID, contract.Signer())
	if err != nil {
		if strings.Contains(err.Error(), "Purchase required") {
			fmt.Println("You need to purchase access first!")
		} else if strings.Contains(err.Error(), "Access expired") {
			fmt.Println("Your access has expired. Purchase again to renew!")
		}
		return fmt.Errorf("failed to retrieve cid: %w", err)
	}

	fmt.Println("Data CID retrieved successfully from Filecoin FVM!")
	fmt.Printf("Data CID: %s\n", dataCid)
	fmt.Println("IPFS URLs:")
	fmt.Printf("  - https://ipfs.io/ipfs/%s\n", dataCid)
	fmt.Printf("  - https://gateway.pinata.cloud/ipfs/%s\n", dataCid)
	fmt.Printf("  - https://cloudflare-ipfs.com/ipfs/%s\n", dataCid)
	return nil
}
