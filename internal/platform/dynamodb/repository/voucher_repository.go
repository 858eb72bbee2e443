package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	commonErrors "github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/platform/dynamodb/client"
)

// DynamoDBVoucherRepository implements the ledger.Repository interface
type DynamoDBVoucherRepository struct {
	client   client.Client
	table    string
	ledgerID string
	logger   *zap.Logger
}

// NewDynamoDBVoucherRepository creates a new DynamoDBVoucherRepository
func NewDynamoDBVoucherRepository(client client.Client, table, ledgerID string, logger *zap.Logger) *DynamoDBVoucherRepository {
	return &DynamoDBVoucherRepository{
		client:   client,
		table:    table,
		ledgerID: ledgerID,
		logger:   logger,
	}
}

// VoucherDDB is the stored form of a voucher. The exchange rate is kept as a
// decimal string so no precision is lost.
type VoucherDDB struct {
	VoucherID   string        `dynamodbav:"voucherId"`
	DocNo       string        `dynamodbav:"docNo"`
	DocDate     string        `dynamodbav:"docDate"`
	PostDate    string        `dynamodbav:"postDate"`
	Description string        `dynamodbav:"description"`
	Type        string        `dynamodbav:"voucherType"`
	TotalAmount int64         `dynamodbav:"totalAmount"`
	Currency    string        `dynamodbav:"currency"`
	FxRate      string        `dynamodbav:"fxRate"`
	Status      string        `dynamodbav:"status"`
	Lines       []ledger.Line `dynamodbav:"lines"`
	CreatedAt   time.Time     `dynamodbav:"createdAt"`
	UpdatedAt   time.Time     `dynamodbav:"updatedAt"`
}

func toVoucherDDB(v *ledger.Voucher) VoucherDDB {
	return VoucherDDB{
		VoucherID:   v.VoucherID,
		DocNo:       v.DocNo,
		DocDate:     v.DocDate,
		PostDate:    v.PostDate,
		Description: v.Description,
		Type:        v.Type,
		TotalAmount: v.TotalAmount,
		Currency:    v.Currency,
		FxRate:      v.FxRate.String(),
		Status:      v.Status,
		Lines:       v.Lines,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func (d VoucherDDB) toVoucher() (ledger.Voucher, error) {
	rate, err := decimal.NewFromString(d.FxRate)
	if err != nil {
		return ledger.Voucher{}, err
	}
	return ledger.Voucher{
		VoucherID:   d.VoucherID,
		DocNo:       d.DocNo,
		DocDate:     d.DocDate,
		PostDate:    d.PostDate,
		Description: d.Description,
		Type:        d.Type,
		TotalAmount: d.TotalAmount,
		Currency:    d.Currency,
		FxRate:      rate,
		Status:      d.Status,
		Lines:       d.Lines,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

// CreateVoucher stores a voucher and its lines as one item
func (r *DynamoDBVoucherRepository) CreateVoucher(ctx context.Context, req *ledger.CreateVoucherRequest) (*ledger.Voucher, error) {
	now := time.Now().UTC()
	voucher := ledger.Voucher{
		VoucherID:   ulid.Make().String(),
		DocNo:       req.DocNo,
		DocDate:     req.DocDate,
		PostDate:    req.PostDate,
		Description: req.Description,
		Type:        req.Type,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		FxRate:      req.FxRate,
		Status:      req.Status,
		Lines:       make([]ledger.Line, 0, len(req.Lines)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if voucher.FxRate.IsZero() {
		voucher.FxRate = decimal.NewFromInt(1)
	}
	for _, line := range req.Lines {
		voucher.Lines = append(voucher.Lines, ledger.Line{
			LineID:        ulid.Make().String(),
			Description:   line.Description,
			DebitAccount:  line.DebitAccount,
			CreditAccount: line.CreditAccount,
			Amount:        line.Amount,
			PartnerCode:   line.PartnerCode,
			ItemCode:      line.ItemCode,
			SubItemCode:   line.SubItemCode,
		})
	}

	item, err := attributevalue.MarshalMap(toVoucherDDB(&voucher))
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal voucher", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: ledgerYearPK(r.ledgerID, voucher.Year())}
	item["SK"] = &types.AttributeValueMemberS{Value: voucherSK(voucher.VoucherID)}
	item["GSI1PK"] = &types.AttributeValueMemberS{Value: voucherGSI1PK(r.ledgerID, voucher.VoucherID)}
	item["GSI1SK"] = &types.AttributeValueMemberS{Value: "VOUCHER"}
	item["GSI2PK"] = &types.AttributeValueMemberS{Value: docNoGSI2PK(r.ledgerID, voucher.DocNo)}
	item["GSI2SK"] = &types.AttributeValueMemberS{Value: voucherSK(voucher.VoucherID)}
	item["Type"] = &types.AttributeValueMemberS{Value: typeVoucher}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewConflictError("voucher already exists")
		}
		return nil, commonErrors.NewInternalError("failed to create voucher", err)
	}

	return &voucher, nil
}

// GetVoucher retrieves a voucher by ID
func (r *DynamoDBVoucherRepository) GetVoucher(ctx context.Context, voucherID string) (*ledger.Voucher, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(voucherGSI1PK(r.ledgerID, voucherID))).
		And(expression.Key("GSI1SK").Equal(expression.Value("VOUCHER")))

	vouchers, err := r.query(ctx, "GSI1", keyCondition, aws.Int32(1))
	if err != nil {
		return nil, err
	}
	if len(vouchers) == 0 {
		return nil, commonErrors.NewNotFoundError("voucher not found").WithDetail("voucherId", voucherID)
	}
	return &vouchers[0], nil
}

// ListVouchersByDocNo returns the vouchers posted under docNo, oldest first
func (r *DynamoDBVoucherRepository) ListVouchersByDocNo(ctx context.Context, docNo string) ([]ledger.Voucher, error) {
	keyCondition := expression.Key("GSI2PK").Equal(expression.Value(docNoGSI2PK(r.ledgerID, docNo))).
		And(expression.Key("GSI2SK").BeginsWith(voucherPrefix))

	return r.query(ctx, "GSI2", keyCondition, nil)
}

func (r *DynamoDBVoucherRepository) query(
	ctx context.Context,
	index string,
	keyCondition expression.KeyConditionBuilder,
	limit *int32,
) ([]ledger.Voucher, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     limit,
	}

	vouchers := []ledger.Voucher{}
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to query vouchers", err)
		}

		var items []VoucherDDB
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal vouchers", err)
		}
		for _, item := range items {
			voucher, err := item.toVoucher()
			if err != nil {
				return nil, commonErrors.NewInternalError("invalid stored fx rate", err)
			}
			vouchers = append(vouchers, voucher)
		}

		if limit != nil || len(result.LastEvaluatedKey) == 0 {
			return vouchers, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}
